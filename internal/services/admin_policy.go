package services

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// AdminPolicy is the single allow-list deciding who may mutate content.
type AdminPolicy struct {
	emails map[string]struct{}
}

type adminPolicyFile struct {
	Admins []string `yaml:"admins"`
}

func NewAdminPolicy(emails ...string) *AdminPolicy {
	p := &AdminPolicy{emails: map[string]struct{}{}}
	for _, e := range emails {
		if n := normalizeEmail(e); n != "" {
			p.emails[n] = struct{}{}
		}
	}
	return p
}

// LoadAdminPolicyFile reads the `admins:` list from a YAML file.
func LoadAdminPolicyFile(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read admin policy %q: %w", path, err)
	}
	var f adminPolicyFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse admin policy %q: %w", path, err)
	}
	return f.Admins, nil
}

func (p *AdminPolicy) IsAdmin(email string) bool {
	if p == nil {
		return false
	}
	_, ok := p.emails[normalizeEmail(email)]
	return ok
}

func (p *AdminPolicy) Size() int {
	if p == nil {
		return 0
	}
	return len(p.emails)
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
