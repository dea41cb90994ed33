package services

import (
	"strings"

	"github.com/adegaexpress/adega/app/models"
)

// preparedCategories are menu sections mixed to order. Their stock field is
// informational only.
var preparedCategories = []string{
	"doses",
	"caipirinhas",
	"batidas",
	"drinks especiais",
	"copão",
	"drinks",
	"copos",
	"caipi ices",
}

// IsPreparedCategory matches name against preparedCategories, case
// insensitively, with a substring match in either direction. Blank names
// never match.
func IsPreparedCategory(name string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return false
	}
	for _, c := range preparedCategories {
		if strings.Contains(n, c) || strings.Contains(c, n) {
			return true
		}
	}
	return false
}

// IsStockExempt reports whether order flows leave p's stock untouched.
// p.Category must be loaded for the category rule to apply.
func IsStockExempt(p *models.Product) bool {
	if p == nil {
		return false
	}
	if p.IsPrepared {
		return true
	}
	return p.Category != nil && IsPreparedCategory(p.Category.Name)
}
