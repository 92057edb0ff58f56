// SPDX-License-Identifier: MIT

// Package wsfeed adapts a Gorilla websocket connection carrying binary
// packet-capture frames into a streambuf.Buffer, so a pcapflow.Decoder can be
// driven from a network source exactly as it would from a file or pipe. It
// also handles the graceful close handshake, so a capture stream ending
// because the peer closed politely is not mistaken for a transport error.
package wsfeed

import (
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/pcapflow/pcapflow/streambuf"
)

// GracefulCloseTimeout bounds how long Feeder.Close waits for the peer to
// acknowledge a close control message before forcing the transport closed.
const GracefulCloseTimeout = 10 * time.Second

// Feeder reads binary frames from a websocket connection and writes each
// frame's payload into a streambuf.Buffer, gracefully handling the close
// handshake on both ends.
type Feeder struct {
	conn    *websocket.Conn
	buf     *streambuf.Buffer
	m       sync.Mutex
	closing bool
	closed  chan struct{}
}

// New returns a Feeder that will pump binary frames from conn into buf until
// the connection closes, errors, or Close is called.
func New(conn *websocket.Conn, buf *streambuf.Buffer) *Feeder {
	return &Feeder{
		conn:   conn,
		buf:    buf,
		closed: make(chan struct{}),
	}
}

// Run pumps frames until the connection ends, then calls buf.End() on a
// graceful close or buf.Abort() on any other error. Run blocks until the feed
// ends; call it from its own goroutine alongside the decoder goroutine
// draining the same buffer.
func (f *Feeder) Run() {
	for {
		data, err := f.readFrame()
		if err != nil {
			if _, ok := err.(*websocket.CloseError); ok {
				log.Debug("packet capture websocket closed gracefully")
				f.buf.End()
			} else {
				log.Debugf("packet capture websocket feed broken: %s", err)
				f.buf.Abort(err)
			}
			return
		}
		if _, err := f.buf.Write(data); err != nil {
			f.buf.Abort(err)
			return
		}
	}
}

// readFrame reads the next binary message, handling close control messages
// the same way the teacher's ReadingClientWebsocket does: the first side to
// send a close message gets an acknowledging close message sent back before
// the connection is actually torn down.
func (f *Feeder) readFrame() ([]byte, error) {
	for {
		msgType, data, err := f.conn.ReadMessage()
		if err == nil {
			if msgType == websocket.BinaryMessage {
				return data, nil
			}
			return nil, fmt.Errorf("unexpected non-binary websocket message")
		}
		cerr, ok := err.(*websocket.CloseError)
		if !ok {
			return nil, err
		}
		f.m.Lock()
		if !f.closing {
			f.closing = true
			log.Debug("peer closes capture websocket, acknowledging close")
			_ = f.conn.WriteMessage(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"))
		}
		f.m.Unlock()
		_ = f.conn.Close()
		close(f.closed)
		return nil, cerr
	}
}

// Close gracefully closes the underlying websocket, bounded by
// GracefulCloseTimeout in case the peer never responds.
func (f *Feeder) Close() {
	f.m.Lock()
	if !f.closing {
		f.closing = true
		log.Debug("initiating graceful capture websocket close")
		_ = f.conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"))
	}
	f.m.Unlock()
	select {
	case <-time.After(GracefulCloseTimeout):
		_ = f.conn.Close()
	case <-f.closed:
	}
}
