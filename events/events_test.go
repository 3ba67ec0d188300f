package events

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"xdao.co/claimledger/model"
)

type panicky struct{}

func (panicky) Notify(model.Event) { panic("listener bug") }

func TestFanout_DeliversInOrderDespitePanics(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	f := Fanout{a, panicky{}, nil, b}

	f.Notify(model.ClaimAuthorized{Caller: model.AccountID{1}})
	f.Notify(model.DepositRecorded{ClientID: model.ClientID("c1"), Amount: model.NewAmount(3)})

	for _, r := range []*Recorder{a, b} {
		evs := r.Events()
		require.Len(t, evs, 2)
		require.Equal(t, model.EventClaimAuthorized, evs[0].EventName())
		require.Equal(t, model.EventDepositRecorded, evs[1].EventName())
	}
	a.Reset()
	require.Empty(t, a.Events())
}

func TestLog_WritesStructuredFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	Log{Logger: zap.New(core)}.Notify(model.DepositRecorded{
		Caller:   model.AccountID{0xaa},
		ClientID: model.ClientID("client-42"),
		Amount:   model.NewAmount(75),
	})
	Log{}.Notify(model.ClaimAuthorized{})

	entries := logs.All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	require.Equal(t, "Deposit", ctx["event"])
	require.Equal(t, "636c69656e742d3432", ctx["client_id"])
	require.Equal(t, "75", ctx["amount"])
}
