package model

import "time"

type Client struct {
	ID        string    `json:"id"`
	UID       string    `json:"uid"`
	Name      string    `json:"name"`
	TaxID     string    `json:"taxId"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewClient is what a caller supplies when creating a client. ID and
// creation time are always assigned by the data access layer.
type NewClient struct {
	UID   string
	Name  string
	TaxID string
}
