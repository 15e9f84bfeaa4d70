package domain

// Contact is a marketing-list contact as the provider expects it.
type Contact struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// ContactsToList adds Contacts to every list in ListIDs.
type ContactsToList struct {
	Contacts []Contact `json:"contacts"`
	ListIDs  []string  `json:"list_ids"`
}
