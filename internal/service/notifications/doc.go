// Package notifications implements marketing consent for registered persons
// and anonymous visitors.
//
// A visitor asks for a confirmation email, receives a link carrying a
// possession-proof hash, and confirms by presenting the hash back. Confirmed
// addresses are pushed to the marketing provider's default list and, when the
// link came from a campaign page, to the campaign's own list. Registered
// persons always win over unregistered consent records for the same address.
//
// The service layer depends only on the interfaces in repository.go. It never
// imports net/http or database/sql directly.
package notifications
