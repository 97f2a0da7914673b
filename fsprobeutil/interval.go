// Package fsprobeutil provides helpers for driving fsprobe runs.
package fsprobeutil

import "time"

// Progresser is implemented by types that can report how far along they
// are; *fsprobe.Verifier is one.
type Progresser interface {
	Progress() (done, total int)
}

// ReportInterval creates a time.Timer to fire every d, to call report with
// the progress of p. It returns once p reports that it is done, or once stop
// is closed, whichever comes first. A final report is always made when p is
// done, but not when stop is closed.
//
// It is recommended to call this function in its own goroutine, next to the
// one running the verifier:
//
//	v, err := fsprobe.NewVerifier(fsys, fsprobe.DefaultPath)
//	if err != nil {
//		...
//	}
//
//	stop := make(chan struct{})
//	go fsprobeutil.ReportInterval(v, 5*time.Second, stop, func(done, total int) {
//		log.Printf("%d/%d iterations", done, total)
//	})
//	_, err = v.Run()
//	close(stop)
func ReportInterval(p Progresser, d time.Duration, stop <-chan struct{}, report func(done, total int)) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	for {
		select {
		case <-stop:
			return
		case <-timer.C:
		}
		done, total := p.Progress()
		report(done, total)
		if done >= total {
			return
		}
		timer.Reset(d)
	}
}
