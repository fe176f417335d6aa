// Package allowlist decides whether an external host may be fetched.
//
// Hosts are compared in their resolved authority form, ".<host>:<port>", against
// configured domain-suffix entries such as ".example.com:80". The leading dot on
// both sides makes ".maps.example.com:80" match ".example.com:80" while
// ".rogueexample.com:80" does not.
//
// Example Usage:
//
//	list, warnings := allowlist.New([]string{"example.com:443"}, false)
//	u, _ := url.Parse("https://cdn.example.com/app.js")
//	ok := list.Approves(u) // true
package allowlist
