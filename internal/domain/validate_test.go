package domain

import (
	"errors"
	"testing"
)

func exchangeEvent() *Event {
	return &Event{
		Kind:        EventKindExchange,
		TxHash:      "0xabc",
		LogIndex:    1,
		BlockNumber: 10,
		Timestamp:   100,
		From:        "0xsender",
		Network:     "mainnet",
		Exchange: &ExchangeParams{
			Account:      "0xaccount",
			FromCurrency: "sETH",
			FromAmount:   "1000000000000000000",
			ToCurrency:   "sUSD",
			ToAmount:     "2000000000000000000",
		},
	}
}

func TestEventValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(e *Event)
		wantErr bool
	}{
		{name: "valid exchange", mutate: func(e *Event) {}},
		{name: "empty tx hash", mutate: func(e *Event) { e.TxHash = "" }, wantErr: true},
		{name: "negative log index", mutate: func(e *Event) { e.LogIndex = -1 }, wantErr: true},
		{name: "empty network", mutate: func(e *Event) { e.Network = "" }, wantErr: true},
		{name: "missing sender", mutate: func(e *Event) { e.From = "" }, wantErr: true},
		{name: "missing currency", mutate: func(e *Event) { e.Exchange.ToCurrency = " " }, wantErr: true},
		{name: "unknown kind", mutate: func(e *Event) { e.Kind = "transfer" }, wantErr: true},
		{
			name: "payload does not match kind",
			mutate: func(e *Event) {
				e.Kind = EventKindReclaim
			},
			wantErr: true,
		},
		{
			name: "two payloads",
			mutate: func(e *Event) {
				e.FeeChange = &FeeChangeParams{Currency: "sETH", Rate: "1"}
			},
			wantErr: true,
		},
		{
			name: "valid rebate",
			mutate: func(e *Event) {
				e.Kind = EventKindRebate
				e.Exchange = nil
				e.Settlement = &SettlementParams{Account: "0xa", Currency: "sBTC", Amount: "1"}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := exchangeEvent()
			tt.mutate(e)
			err := e.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedInput) {
					t.Errorf("Validate() error = %v, want ErrMalformedInput", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
		})
	}
}

func TestEventValidate_Nil(t *testing.T) {
	var e *Event
	if err := e.Validate(); !errors.Is(err, ErrMalformedInput) {
		t.Errorf("Validate() on nil = %v, want ErrMalformedInput", err)
	}
}

func TestCheckpointAfter(t *testing.T) {
	cp := &Checkpoint{BlockNumber: 10, LogIndex: 3}

	tests := []struct {
		block, log int64
		want       bool
	}{
		{9, 100, false},
		{10, 2, false},
		{10, 3, false},
		{10, 4, true},
		{11, 0, true},
	}
	for _, tt := range tests {
		if got := cp.After(tt.block, tt.log); got != tt.want {
			t.Errorf("After(%d, %d) = %v, want %v", tt.block, tt.log, got, tt.want)
		}
	}

	var none *Checkpoint
	if !none.After(0, 0) {
		t.Error("nil checkpoint should accept every position")
	}
}

func TestNewAggregateTotal_Zeroed(t *testing.T) {
	agg := NewAggregateTotal(GranularityDaily, "86400")
	if agg.TradeCount != 0 || agg.UniqueTraderCount != 0 {
		t.Errorf("counters not zero: %+v", agg)
	}
	if !agg.VolumeUSD.IsZero() || !agg.FeesUSD.IsZero() {
		t.Errorf("tallies not zero: %+v", agg)
	}
	if agg.Key != "86400" || agg.Granularity != GranularityDaily {
		t.Errorf("identity not set: %+v", agg)
	}
}
