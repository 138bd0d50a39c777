package enum

import "strings"

type Category string

const (
	CategoryDevOps          Category = "DevOps"
	CategoryDevelopment     Category = "Development/Engineering"
	CategoryAIML            Category = "AI/ML"
	CategoryBusiness        Category = "Business/Marketing"
	CategoryFinTech         Category = "FinTech"
	CategoryTelecom         Category = "Telecom"
	CategoryDeviceFinancing Category = "Device Financing"
	CategoryOther           Category = "Other"
)

// Categories is the closed classification vocabulary, in the order digest
// sections are rendered.
var Categories = []Category{
	CategoryDevOps,
	CategoryDevelopment,
	CategoryAIML,
	CategoryBusiness,
	CategoryFinTech,
	CategoryTelecom,
	CategoryDeviceFinancing,
	CategoryOther,
}

func (c Category) String() string {
	return string(c)
}

// DecodeCategory coerces arbitrary provider output into the closed vocabulary.
// Anything outside the vocabulary maps to CategoryOther.
func DecodeCategory(s string) Category {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if string(c) == s {
			return c
		}
	}
	return CategoryOther
}
