package transit

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/pkg/errors"

	"github.com/busontime/busontime/internal/models"
)

// resultCodeOK is the provider's success sentinel.
const resultCodeOK = "00"

// envelope is the data.go.kr response wrapper.
type envelope struct {
	Response struct {
		Header struct {
			ResultCode string `json:"resultCode"`
			ResultMsg  string `json:"resultMsg"`
		} `json:"header"`
		Body struct {
			Items      itemList `json:"items"`
			NumOfRows  int      `json:"numOfRows"`
			PageNo     int      `json:"pageNo"`
			TotalCount int      `json:"totalCount"`
		} `json:"body"`
	} `json:"response"`
}

// itemList decodes the "items" field into a sequence. Upstream sends
// {"item": {...}} for a single match, {"item": [...]} for several and an
// empty string when nothing matched.
type itemList []models.BusArrival

func (l *itemList) UnmarshalJSON(data []byte) error {
	*l = nil

	data = bytes.TrimSpace(data)
	if isEmptyJSON(data) {
		return nil
	}

	var wrapper struct {
		Item json.RawMessage `json:"item"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return errors.Wrap(err, "decoding items")
	}

	item := bytes.TrimSpace(wrapper.Item)
	if isEmptyJSON(item) {
		return nil
	}

	switch item[0] {
	case '[':
		var many []models.BusArrival
		if err := json.Unmarshal(item, &many); err != nil {
			return errors.Wrap(err, "decoding item array")
		}
		*l = many
	case '{':
		var one models.BusArrival
		if err := json.Unmarshal(item, &one); err != nil {
			return errors.Wrap(err, "decoding item")
		}
		*l = itemList{one}
	default:
		return errors.Errorf("unexpected item encoding %q", item[0])
	}
	return nil
}

func isEmptyJSON(data []byte) bool {
	return len(data) == 0 || bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte(`""`))
}

// decodeArrivals parses an upstream body and returns its arrivals as a
// sequence, or the error describing why there are none.
func decodeArrivals(r io.Reader) ([]models.BusArrival, error) {
	var env envelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, errors.Wrap(err, "parsing response")
	}

	header := env.Response.Header
	if header.ResultCode != resultCodeOK {
		return nil, &ProviderError{Code: header.ResultCode, Message: header.ResultMsg}
	}

	body := env.Response.Body
	if body.TotalCount == 0 || len(body.Items) == 0 {
		return nil, ErrNoArrivals
	}

	return body.Items, nil
}
