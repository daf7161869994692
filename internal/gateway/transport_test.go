package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorHelpers(t *testing.T) {
	te := &TransportError{Op: OpListAccounts, Err: errors.New("connection refused")}
	ve := &ValidationError{Op: OpAddOperation, Message: "Subject is required"}

	assert.True(t, IsTransport(fmt.Errorf("wrapped: %w", te)))
	assert.False(t, IsValidation(te))
	assert.True(t, IsValidation(ve))
	assert.False(t, IsTransport(ve))

	assert.Equal(t, "list accounts: connection refused", te.Error())
	assert.Equal(t, "Subject is required", ve.Error())
}

func TestHTTP_Unreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	_, err := NewHTTP(url).ListAccounts(context.Background())
	require.Error(t, err)
	assert.True(t, IsTransport(err))
}

func TestHTTP_StatusIsValidation(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get(requestIDHeader))
		http.Error(w, "  backend says no  ", http.StatusInternalServerError)
	}))
	defer ts.Close()

	err := NewHTTP(ts.URL).AddOperation(context.Background(), "a", modelDraft())
	require.Error(t, err)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, OpAddOperation, ve.Op)
	assert.Equal(t, "backend says no", ve.Message)
}

func TestHTTP_EmptyErrorBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer ts.Close()

	_, err := NewHTTP(ts.URL).ListAccounts(context.Background())
	assert.Equal(t, "Conflict", err.Error())
}

func TestHTTP_MalformedResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "<html>")
	}))
	defer ts.Close()

	_, err := NewHTTP(ts.URL).ListReferences(context.Background())
	require.Error(t, err)
	assert.True(t, IsTransport(err))
	assert.Contains(t, err.Error(), "malformed response")
}

func TestHTTP_ImportRequiresCanonicalShape(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[{"account":{"id":"a"},"operation":{}}]`)
	}))
	defer ts.Close()

	_, err := NewHTTP(ts.URL).ImportFiles(context.Background(), []string{"x.csv"})
	require.Error(t, err)
	assert.True(t, IsTransport(err))

	ts2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"candidates":[]}`)
	}))
	defer ts2.Close()
	_, err = NewHTTP(ts2.URL).ImportFiles(context.Background(), []string{"x.csv"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing operations")
}

func TestHTTP_OperationIDIsEscaped(t *testing.T) {
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		fmt.Fprint(w, `{"id":"x"}`)
	}))
	defer ts.Close()

	_, err := NewHTTP(ts.URL+"/").GetOperation(context.Background(), "CCP 1", "2026-10-14.CARTE 13/10.-1.00")
	require.NoError(t, err)
	assert.Equal(t, "/api/accounts/CCP%201/operations/2026-10-14.CARTE%2013%2F10.-1.00", gotPath)
}

func TestChannel_PeerClosed(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	gw := NewChannel(clientConn)
	defer gw.Close()

	// Read the request, then hang up without answering.
	go func() {
		buf := make([]byte, 4096)
		_, _ = serverConn.Read(buf)
		serverConn.Close()
	}()

	_, err := gw.ListAccounts(context.Background())
	require.Error(t, err)
	assert.True(t, IsTransport(err))
	assert.ErrorIs(t, err, ErrChannelClosed)

	_, err = gw.ListAccounts(context.Background())
	assert.ErrorIs(t, err, ErrChannelClosed)
}

func TestChannel_ContextCancelled(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	gw := NewChannel(clientConn)
	defer gw.Close()

	go func() {
		buf := make([]byte, 4096)
		for {
			if _, err := serverConn.Read(buf); err != nil {
				return
			}
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := gw.ListReferences(ctx)
	require.Error(t, err)
	assert.True(t, IsTransport(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestChannel_ErrorResponse(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	gw := NewChannel(clientConn)
	defer gw.Close()

	go func() {
		dec := newLineReader(serverConn)
		m, err := dec()
		if err != nil {
			return
		}
		fmt.Fprintf(serverConn, `{"id":%q,"name":"error","payload":"Category is required"}`+"\n", m.ID)
	}()

	err := gw.AddOperation(context.Background(), "a", modelDraft())
	require.Error(t, err)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Category is required", ve.Message)
}

func TestChannel_UnexpectedResponseName(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	gw := NewChannel(clientConn)
	defer gw.Close()

	go func() {
		m, err := newLineReader(serverConn)()
		if err != nil {
			return
		}
		fmt.Fprintf(serverConn, `{"id":%q,"name":"import","payload":[]}`+"\n", m.ID)
	}()

	_, err := gw.ListAccounts(context.Background())
	require.Error(t, err)
	assert.True(t, IsTransport(err))
	assert.Contains(t, err.Error(), "unexpected response")
}

func TestSpawnChannel_EmptyCommand(t *testing.T) {
	_, err := SpawnChannel(context.Background(), nil)
	assert.Error(t, err)
}
