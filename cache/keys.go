package cache

import "strconv"

// TemplateKey identifies a parsed template: its text plus the identity
// of the policy (dialect and bind policy) it was parsed under.
type TemplateKey struct {
	Text   string
	Policy uint64
}

// flight returns the singleflight key for k.
func (k TemplateKey) flight() string {
	return strconv.FormatUint(k.Policy, 16) + "\x00" + k.Text
}
