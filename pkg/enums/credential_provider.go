package enums

// CredentialProvider names the external system an OAuth credential belongs to.
type CredentialProvider string

const (
	CredentialProviderERP     CredentialProvider = "ERP"
	CredentialProviderPayment CredentialProvider = "PAYMENT"
)

var validCredentialProviders = []CredentialProvider{
	CredentialProviderERP,
	CredentialProviderPayment,
}

func (c CredentialProvider) String() string { return string(c) }

func (c CredentialProvider) IsValid() bool { return known(validCredentialProviders, c) }

func ParseCredentialProvider(value string) (CredentialProvider, error) {
	return parse(validCredentialProviders, value, "credential provider")
}
