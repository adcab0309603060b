package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonvc/ledgersync/internal/directive"
	"github.com/simonvc/ledgersync/internal/ledger"
	"github.com/simonvc/ledgersync/internal/syncer"
)

func movement() syncer.Movement {
	return syncer.Movement{
		Key:       "2025-02-03|JE-1|1200|50|0|0|WIDGET|5|0|MAIN|B",
		Date:      ledger.MustDate("2025-02-03"),
		Item:      "WIDGET",
		Quantity:  decimal.NewFromInt(5),
		UnitCost:  decimal.Zero,
		Direction: directive.DirectionTransfer,
		From:      "MAIN",
		To:        "B",
	}
}

func TestHTTPClientCreateAndPost(t *testing.T) {
	var gotKey, postedBy string
	var got syncer.Movement
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/movements":
			gotKey = r.Header.Get("Idempotency-Key")
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id":"mv-9"}`))
		case "/api/v1/movements/mv-9/post":
			var body map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			postedBy = body["postedBy"]
			w.WriteHeader(http.StatusNoContent)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second)
	id, err := c.CreateMovement(context.Background(), movement())
	require.NoError(t, err)
	assert.Equal(t, "mv-9", id)
	assert.Equal(t, movement().Key, gotKey)
	assert.Equal(t, "WIDGET", got.Item)
	assert.True(t, got.Quantity.Equal(decimal.NewFromInt(5)))

	require.NoError(t, c.PostMovement(context.Background(), id, "clerk"))
	assert.Equal(t, "clerk", postedBy)
}

func TestHTTPClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":"unknown item"}`))
	}))
	defer srv.Close()

	_, err := NewHTTPClient(srv.URL, time.Second).CreateMovement(context.Background(), movement())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown item")
}

func TestHTTPClientDocumentByReference(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("reference") != "INV-0042" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"reference":"INV-0042","warehouse":"MAIN","lines":[{"item":"WIDGET","quantity":2,"unitCost":100}]}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second)
	doc, err := c.DocumentByReference(context.Background(), "INV-0042")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "MAIN", doc.Warehouse)
	require.Len(t, doc.Lines, 1)
	assert.True(t, doc.Lines[0].Quantity.Equal(decimal.NewFromInt(2)))

	missing, err := c.DocumentByReference(context.Background(), "INV-404")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestKafkaPublisher(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w}

	id, err := p.CreateMovement(context.Background(), movement())
	require.NoError(t, err)
	require.NotEmpty(t, id)
	require.NoError(t, p.PostMovement(context.Background(), id, "clerk"))

	require.Len(t, w.msgs, 2)
	assert.Equal(t, id, string(w.msgs[0].Key))
	assert.Equal(t, string(w.msgs[0].Key), string(w.msgs[1].Key))

	var create Command
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &create))
	assert.Equal(t, CommandCreate, create.Type)
	assert.Equal(t, id, create.ID)
	require.NotNil(t, create.Movement)
	assert.Equal(t, "B", create.Movement.To)

	var post Command
	require.NoError(t, json.Unmarshal(w.msgs[1].Value, &post))
	assert.Equal(t, CommandPost, post.Type)
	assert.Equal(t, "clerk", post.PostedBy)
}

func TestKafkaPublisherFailureLeavesNoID(t *testing.T) {
	p := &KafkaPublisher{writer: &fakeWriter{err: errors.New("broker down")}}
	id, err := p.CreateMovement(context.Background(), movement())
	assert.Error(t, err)
	assert.Empty(t, id)
}

func TestKafkaPublisherDrivesEngine(t *testing.T) {
	w := &fakeWriter{}
	e := syncer.New(&KafkaPublisher{writer: w}, nil, syncer.NewMemoryKeyStore(), syncer.WithAutoPost("sync"))
	row := ledger.Row{
		Date:    ledger.MustDate("2025-02-03"),
		Account: "1200",
		Debit:   decimal.NewFromInt(50),
		Credit:  decimal.Zero,
		Memo:    `INV{sku: "WIDGET", qty: 5, fromWh: "MAIN", toWh: "B"}`,
	}
	e.Scan(context.Background(), []ledger.Row{row})
	e.Scan(context.Background(), []ledger.Row{row})
	assert.Len(t, w.msgs, 2)
}
