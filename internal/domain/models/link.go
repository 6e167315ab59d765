// internal/domain/models/link.go
package models

// UserToInquiry joins a volunteer to an inquiry.
// Its ID is derived from both sides so creating the same pair twice is a no-op.
type UserToInquiry struct {
	ID        string `json:"id"`
	UserID    string `json:"userID"`
	InquiryID string `json:"inquiryID"`
}

// LinkID returns the document id for the (userID, inquiryID) pair.
func LinkID(userID, inquiryID string) string {
	return userID + "_" + inquiryID
}

// NewUserToInquiry builds the join record for the pair.
func NewUserToInquiry(userID, inquiryID string) UserToInquiry {
	return UserToInquiry{
		ID:        LinkID(userID, inquiryID),
		UserID:    userID,
		InquiryID: inquiryID,
	}
}

// Doc returns the document representation written to the store.
func (l UserToInquiry) Doc() map[string]any {
	return map[string]any{
		"id":        l.ID,
		"userID":    l.UserID,
		"inquiryID": l.InquiryID,
	}
}
