package guestcart

import "time"

// Line is one (product, quantity) entry of a guest snapshot.
type Line struct {
	ProductID uint `dynamodbav:"product_id" json:"product_id"`
	Quantity  int  `dynamodbav:"quantity" json:"quantity"`
}

// Snapshot is the whole cart of one anonymous session, stored as a single item.
// Version starts at 0 for a snapshot that has never been saved.
type Snapshot struct {
	SessionID string    `dynamodbav:"session_id" json:"session_id"` // PK
	Lines     []Line    `dynamodbav:"lines" json:"lines"`
	Version   int64     `dynamodbav:"version" json:"version"`
	UpdatedAt time.Time `dynamodbav:"updated_at" json:"updated_at"`
	ExpiresAt int64     `dynamodbav:"expires_at" json:"-"` // TTL epoch seconds
}

func (s *Snapshot) find(productID uint) int {
	for i, l := range s.Lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

// Add puts qty more of a product in the snapshot. qty below 1 counts as 1.
func (s *Snapshot) Add(productID uint, qty int) {
	if qty < 1 {
		qty = 1
	}
	if i := s.find(productID); i >= 0 {
		s.Lines[i].Quantity += qty
		return
	}
	s.Lines = append(s.Lines, Line{ProductID: productID, Quantity: qty})
}

// Increment adds one, creating the line if needed.
func (s *Snapshot) Increment(productID uint) {
	s.Add(productID, 1)
}

// Decrement removes one; a line at 1 is dropped. Missing lines are ignored.
func (s *Snapshot) Decrement(productID uint) {
	i := s.find(productID)
	if i < 0 {
		return
	}
	if s.Lines[i].Quantity <= 1 {
		s.Remove(productID)
		return
	}
	s.Lines[i].Quantity--
}

func (s *Snapshot) Remove(productID uint) {
	i := s.find(productID)
	if i < 0 {
		return
	}
	s.Lines = append(s.Lines[:i], s.Lines[i+1:]...)
}

func (s *Snapshot) Clear() {
	s.Lines = nil
}

// TotalItems is the sum of line quantities.
func (s *Snapshot) TotalItems() int {
	n := 0
	for _, l := range s.Lines {
		n += l.Quantity
	}
	return n
}
