package usecase

import "time"

// Published on RabbitMQ when a scan session confirms a code.
type ScanConfirmedMsg struct {
	SessionID string    `json:"sessionId"`
	UserID    string    `json:"userId"`
	Code      string    `json:"code"`
	Format    string    `json:"format"`
	Backend   string    `json:"backend"`
	At        time.Time `json:"at"`
}

// Sent by the catalog service on Kafka when a product changes.
type ProductPriceChangedMsg struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Price     string `json:"price"` // decimal string
}
