package model

// Room is a bookable unit from the property's room catalog.  The
// reservation engine only reads rooms; they are created and edited by
// the catalog owner.  This struct corresponds to a row in the `rooms`
// table.
//
// Fields:
//  ID                – primary key identifier.
//  Number            – room number shown to guests (unique).
//  Type              – room type label (SINGLE, DOUBLE, SUITE, ...).
//  Capacity          – maximum number of guests (1–10).
//  NightlyPriceCents – price per night in cents, always positive.
//  IsBookable        – whether new stays may be booked in the room.
//  Floor             – floor number.
//  Description       – optional free text.
type Room struct {
    ID                uint64  `json:"id"`                    // rooms.id
    Number            string  `json:"number"`                // rooms.room_number
    Type              string  `json:"type"`                  // rooms.room_type
    Capacity          int     `json:"capacity"`              // rooms.capacity
    NightlyPriceCents int64   `json:"nightly_price_cents"`   // rooms.nightly_price_cents
    IsBookable        bool    `json:"is_bookable"`           // rooms.is_bookable
    Floor             int     `json:"floor"`                 // rooms.floor
    Description       *string `json:"description,omitempty"` // rooms.description (nullable)
}
