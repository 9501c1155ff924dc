package chflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReceive(t *testing.T) {
	t.Run("receives a value", func(t *testing.T) {
		ch := make(chan int, 1)
		ch <- 7

		v, ok := Receive(t.Context(), ch)

		assert.True(t, ok)
		assert.Equal(t, 7, v)
	})

	t.Run("closed channel reports failure", func(t *testing.T) {
		ch := make(chan int)
		close(ch)

		_, ok := Receive(t.Context(), ch)

		assert.False(t, ok)
	})

	t.Run("canceled context aborts the receive", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		ch := make(chan int)
		_, ok := Receive(ctx, ch)

		assert.False(t, ok)
	})
}

func TestSend(t *testing.T) {
	t.Run("sends when there is capacity", func(t *testing.T) {
		ch := make(chan string, 1)

		ok := Send(t.Context(), ch, "data")

		assert.True(t, ok)
		assert.Equal(t, "data", <-ch)
	})

	t.Run("canceled context aborts the send", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		ch := make(chan string)
		ok := Send(ctx, ch, "data")

		assert.False(t, ok)
	})
}

func TestTrySend(t *testing.T) {
	t.Run("delivers immediately when there is capacity", func(t *testing.T) {
		ch := make(chan int, 1)

		assert.True(t, TrySend(t.Context(), ch, 1))
	})

	t.Run("drops instead of blocking on a full channel", func(t *testing.T) {
		ch := make(chan int, 1)
		ch <- 1

		assert.False(t, TrySend(t.Context(), ch, 2))
	})
}
