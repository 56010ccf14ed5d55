package window

import (
	"log/slog"

	"github.com/go-tcpwin/tcpwin/internal"
	"github.com/go-tcpwin/tcpwin/seq"
)

func (w *Window) logenabled(lvl slog.Level) bool {
	return internal.HeapAllocDebugging || internal.LogEnabled(w.log, lvl)
}

func (w *Window) logattrs(lvl slog.Level, msg string, attrs ...slog.Attr) {
	internal.LogAttrs(w.log, lvl, msg, attrs...)
}

func (w *Window) debugf(msg string, attrs ...slog.Attr) {
	w.logattrs(slog.LevelDebug, msg, attrs...)
}

func (w *Window) trace(msg string, attrs ...slog.Attr) {
	w.logattrs(internal.LevelTrace, msg, attrs...)
}

func (w *Window) logerr(msg string, attrs ...slog.Attr) {
	w.logattrs(slog.LevelError, msg, attrs...)
}

func (w *Window) traceRx(msg string) {
	if !w.logenabled(internal.LevelTrace) {
		return
	}
	w.trace(msg,
		slog.String("window", w.id.String()),
		slog.Uint64("rx.current", uint64(w.rx.current)),
		slog.Uint64("rx.highest", uint64(w.rx.highest)),
	)
}

func (w *Window) traceTx(msg string) {
	if !w.logenabled(internal.LevelTrace) {
		return
	}
	w.trace(msg,
		slog.String("window", w.id.String()),
		slog.Uint64("tx.current", uint64(w.tx.current)),
		slog.Uint64("tx.highest", uint64(w.tx.highest)),
		slog.Uint64("tx.nextTx", uint64(w.tx.nextTx)),
		slog.Uint64("srtt_ms", uint64(w.srttMs)),
	)
}

func (w *Window) rejectRX(sn seq.Value, reason string) {
	if w.mtr != nil {
		w.mtr.RXRejected(reason)
	}
	w.debugf("rx rejected",
		slog.String("window", w.id.String()),
		slog.Uint64("seq", uint64(sn)),
		slog.String("reason", reason),
	)
}
