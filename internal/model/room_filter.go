package model

import "time"

// RoomFilter narrows a search for rooms free over [CheckIn, CheckOut).
// Zero-valued optional fields do not filter.
type RoomFilter struct {
    CheckIn       time.Time
    CheckOut      time.Time
    MinCapacity   int
    MaxPriceCents int64
    Type          string
}
