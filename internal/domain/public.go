package domain

// PublicOrganization is what a public view token reveals about its organization.
type PublicOrganization struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Slug string `json:"slug" yaml:"slug"`
}
