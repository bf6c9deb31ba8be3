package migrations

func init() {
	Register(Migration{
		Timestamp:   "20250722-181420",
		Description: "Add refund tracking columns to payments",
		Up: []string{
			`ALTER TABLE payments ADD COLUMN refunded_at TEXT`,
			`ALTER TABLE payments ADD COLUMN refund_amount_minor INTEGER`,
		},
	})
}
