package domain

import "time"

// AccessToken is a bearer credential issued by the identity provider.
type AccessToken struct {
	Value     string
	ExpiresOn time.Time
}

// ExpiresWithin reports whether the token is expired or will expire within skew of now.
func (t AccessToken) ExpiresWithin(now time.Time, skew time.Duration) bool {
	return t.Value == "" || !now.Add(skew).Before(t.ExpiresOn)
}
