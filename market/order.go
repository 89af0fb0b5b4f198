package market

// Direction is the side of a proposed or executed order.
type Direction string

const (
	Buy  Direction = "BUY"
	Sell Direction = "SELL"
)

// OrderType distinguishes resting limit orders from immediate market orders.
type OrderType string

const (
	Limit  OrderType = "LIMIT"
	Market OrderType = "MARKET"
)

// RoundToLot rounds amount down to the nearest multiple of lot.
// A non-positive lot leaves the amount unchanged.
func RoundToLot(amount int64, lot int64) int64 {
	if lot <= 0 {
		return amount
	}
	return amount / lot * lot
}
