package report

import (
	"bytes"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hamed0406/bengreen/internal/domain"
)

func TestReporter_Lines(t *testing.T) {
	cases := []struct {
		name string
		emit func(r *Reporter)
		want string
	}{
		{"list", func(r *Reporter) { r.List(slices.Values([]string{"a", "b"})) }, "BG: a\nBG: b\n"},
		{"list empty", func(r *Reporter) { r.List(slices.Values([]string(nil))) }, ""},
		{"passed", func(r *Reporter) {
			r.Result("tls", domain.Passed(2*time.Second+7))
		}, "BG: tls: passed: 2000000007 ns\n"},
		{"failed", func(r *Reporter) {
			r.Result("tcp_fin", domain.Failed("dial tcp: refused", time.Second))
		}, "BG: tcp_fin: failed: dial tcp: refused\n"},
		{"not found", func(r *Reporter) { r.NotFound("nope") }, "BG: nope: not found\n"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var buf bytes.Buffer
			c.emit(New("BG", &buf))
			assert.Equal(t, c.want, buf.String())
		})
	}
}

func TestNew_DefaultLabel(t *testing.T) {
	var buf bytes.Buffer
	New("", &buf).NotFound("x")
	assert.Equal(t, "BenGreen: x: not found\n", buf.String())
}
