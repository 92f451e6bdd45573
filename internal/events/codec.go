package events

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// Encode serializes an event to its JSON wire form. The event type travels
// in the payload as well as in the message header so consumers can decode
// without broker metadata.
func Encode(event Event) ([]byte, error) {
	switch e := event.(type) {
	case ProductDiscountExpired:
		return encodeProductDiscountExpired(e), nil
	default:
		return nil, errors.Errorf("unsupported event type: %T", event)
	}
}

// Decode deserializes an event payload previously produced by Encode.
func Decode(data []byte) (Event, error) {
	eventType, err := peekType(data)
	if err != nil {
		return nil, errors.Wrap(err, "peek event type")
	}

	switch eventType {
	case TypeProductDiscountExpired:
		return decodeProductDiscountExpired(data)
	default:
		return nil, errors.Errorf("unknown event type: %q", eventType)
	}
}

func encodeProductDiscountExpired(e ProductDiscountExpired) []byte {
	var enc jx.Encoder
	enc.ObjStart()
	enc.FieldStart("type")
	enc.Str(TypeProductDiscountExpired)
	enc.FieldStart("id")
	enc.Str(e.ID)
	enc.FieldStart("productId")
	enc.Str(e.ProductID)
	enc.FieldStart("discountId")
	enc.Str(e.DiscountID)
	enc.FieldStart("occurredAt")
	enc.Str(e.OccurredAt.UTC().Format(time.RFC3339Nano))
	enc.ObjEnd()
	return enc.Bytes()
}

func decodeProductDiscountExpired(data []byte) (ProductDiscountExpired, error) {
	var e ProductDiscountExpired
	d := jx.DecodeBytes(data)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "id":
			v, err := d.Str()
			if err != nil {
				return err
			}
			e.ID = v
		case "productId":
			v, err := d.Str()
			if err != nil {
				return err
			}
			e.ProductID = v
		case "discountId":
			v, err := d.Str()
			if err != nil {
				return err
			}
			e.DiscountID = v
		case "occurredAt":
			v, err := d.Str()
			if err != nil {
				return err
			}
			ts, err := time.Parse(time.RFC3339Nano, v)
			if err != nil {
				return errors.Wrap(err, "parse occurredAt")
			}
			e.OccurredAt = ts
		default:
			return d.Skip()
		}
		return nil
	})
	if err != nil {
		return ProductDiscountExpired{}, errors.Wrap(err, "decode product discount expired")
	}
	return e, nil
}

// peekType extracts the "type" field without decoding the whole payload.
func peekType(data []byte) (string, error) {
	var eventType string
	d := jx.DecodeBytes(data)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "type" {
			return d.Skip()
		}
		v, err := d.Str()
		if err != nil {
			return err
		}
		eventType = v
		return nil
	})
	if err != nil {
		return "", err
	}
	if eventType == "" {
		return "", errors.New("payload has no type field")
	}
	return eventType, nil
}
