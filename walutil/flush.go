package walutil

import (
	"time"

	"github.com/pkg/errors"

	wal "github.com/nesv/waltail"
)

// FlushInterval creates a time.Timer to fire after the given time.Duration d,
// to call w.Flush(). If w.Flush() returns a non-nil error, the onError
// function is called, with the non-nil error as an argument.
//
// If the non-nil error returned from w.Flush() is wal.ErrWriterClosed,
// this function will exit. It is recommended to call this function in its own
// goroutine.
//
//	w, err := wal.NewWriter(files)
//	if err != nil {
//		...
//	}
//
//	go walutil.FlushInterval(w, 10*time.Millisecond, func(err error) {
//		log.Println("error flushing log:", err)
//	})
func FlushInterval(w *wal.Writer, d time.Duration, onError func(error)) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	for range timer.C {
		if err := w.Flush(); err != nil && errors.Is(err, wal.ErrWriterClosed) {
			return
		} else if err != nil {
			onError(err)
		}
		timer.Reset(d)
	}
}
