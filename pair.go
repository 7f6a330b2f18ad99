package pipeio

// Pipe creates a native anonymous pipe and returns the two connected
// devices: a read-only device on the read end and a write-only device on
// the write end. Bytes written to w become readable from r, in order.
// Options apply to both devices. On failure, anything already created is
// released before the error is returned.
func Pipe(opts ...Option) (r, w *Device, err error) {
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, nil, err
	}

	rh, wh, err := makePipe(cfg.bufferSize)
	if err != nil {
		return nil, nil, err
	}

	r, err = New(opts...)
	if err == nil {
		err = r.Open(rh, ReadOnly)
	}
	if err != nil {
		closeHandle(rh)
		closeHandle(wh)
		return nil, nil, err
	}

	w, err = New(opts...)
	if err == nil {
		err = w.Open(wh, WriteOnly)
	}
	if err != nil {
		r.Close()
		closeHandle(wh)
		return nil, nil, err
	}

	return r, w, nil
}
