package dto

// AssetView 某个名称的衍生资源展示状态
type AssetView struct {
	Kind        string           `json:"kind"`
	NameID      string           `json:"name_id"`
	Visible     bool             `json:"visible"`
	Cached      bool             `json:"cached"`
	Domains     []*DomainResult  `json:"domains,omitempty"`
	Packages    []*PackageResult `json:"packages,omitempty"`
	LogoURL     string           `json:"logo_url,omitempty"`
	OnePagerURL string           `json:"one_pager_url,omitempty"`
	Notice      *Notice          `json:"notice,omitempty"`
}

type DomainResult struct {
	Domain       string `json:"domain"`
	PurchaseLink string `json:"purchase_link"`
}

type PackageResult struct {
	NpmName      string `json:"npm_name"`
	PurchaseLink string `json:"purchase_link"`
}
