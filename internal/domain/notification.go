package domain

import "time"

// Notification is an in-app message to the customer about an RMA status
// change. Rows are written best-effort; a failed write never fails the
// transition that produced it.
type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	RmaID     int64     `json:"rma_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// User is the minimal slice of the account system the notification channel
// needs: a recipient. Account management itself lives elsewhere.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
