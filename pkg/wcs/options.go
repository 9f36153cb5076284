package wcs

type options struct {
	zeroInverse bool
	sipAlways   bool
}

// Option configures model construction.
type Option func(*options)

// WithZeroInverseFallback keeps a model with a singular linear transform
// usable: its inverse is the zero matrix and no error is reported, so
// SkyToPixel maps everything onto the reference pixel. Only needed for parity
// with data products written by older tools.
func WithZeroInverseFallback() Option {
	return func(o *options) { o.zeroInverse = true }
}

// WithSIPAlways applies SIP distortion for every projection, not only the
// tangent-plane family.
func WithSIPAlways() Option {
	return func(o *options) { o.sipAlways = true }
}
