package gateway

import (
	"bufio"
	"encoding/json"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tally-dev/tally/internal/channel"
	"github.com/tally-dev/tally/internal/model"
)

func modelDraft() model.OperationDraft {
	return model.OperationDraft{
		Date:     time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC),
		RawLabel: "CARTE X1234 13/10 DECATHLON PARIS",
		Amount:   decimal.RequireFromString("-45.90"),
	}
}

// newLineReader returns a function reading one envelope per call.
func newLineReader(r io.Reader) func() (channel.Message, error) {
	br := bufio.NewReader(r)
	return func() (channel.Message, error) {
		line, err := br.ReadBytes('\n')
		if err != nil {
			return channel.Message{}, err
		}
		var m channel.Message
		err = json.Unmarshal(line, &m)
		return m, err
	}
}
