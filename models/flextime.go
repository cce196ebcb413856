package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// FlexTime is a time field that tolerates the shapes found in records that were
// written by different clients: BSON datetimes, BSON timestamps, epoch
// milliseconds and date strings.
type FlexTime struct {
	time.Time
}

func NewFlexTime(t time.Time) *FlexTime {
	return &FlexTime{Time: t}
}

var flexLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

func parseFlexString(s string) (time.Time, error) {
	for _, layout := range flexLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", s)
}

func (t FlexTime) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(t.Time)
}

func (t *FlexTime) UnmarshalBSONValue(bt bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: bt, Value: data}
	switch bt {
	case bsontype.DateTime:
		ms, ok := rv.DateTimeOK()
		if !ok {
			return fmt.Errorf("malformed datetime")
		}
		t.Time = time.UnixMilli(ms).UTC()
	case bsontype.Timestamp:
		sec, _, ok := rv.TimestampOK()
		if !ok {
			return fmt.Errorf("malformed timestamp")
		}
		t.Time = time.Unix(int64(sec), 0).UTC()
	case bsontype.String:
		parsed, err := parseFlexString(rv.StringValue())
		if err != nil {
			return err
		}
		t.Time = parsed
	case bsontype.Int64:
		t.Time = time.UnixMilli(rv.Int64()).UTC()
	case bsontype.Int32:
		t.Time = time.UnixMilli(int64(rv.Int32())).UTC()
	case bsontype.Double:
		t.Time = time.UnixMilli(int64(rv.Double())).UTC()
	case bsontype.Null, bsontype.Undefined:
		t.Time = time.Time{}
	default:
		return fmt.Errorf("cannot decode %s into a time", bt)
	}
	return nil
}

func (t FlexTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time)
}

func (t *FlexTime) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := parseFlexString(s)
		if err != nil {
			return err
		}
		t.Time = parsed
		return nil
	}
	var ms int64
	if err := json.Unmarshal(data, &ms); err != nil {
		return fmt.Errorf("cannot decode %s into a time", data)
	}
	t.Time = time.UnixMilli(ms).UTC()
	return nil
}
