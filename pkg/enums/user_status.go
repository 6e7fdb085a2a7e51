package enums

type UserStatus string

const (
	UserStatusPending   UserStatus = "PENDING"
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

var validUserStatuses = []UserStatus{
	UserStatusPending,
	UserStatusActive,
	UserStatusSuspended,
}

func (u UserStatus) String() string { return string(u) }

func (u UserStatus) IsValid() bool { return known(validUserStatuses, u) }

func ParseUserStatus(value string) (UserStatus, error) {
	return parse(validUserStatuses, value, "user status")
}
