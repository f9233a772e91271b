package schema

// Device profile presented to the Kobo store API. The values imitate a
// Kobo e-reader; the store rejects unknown affiliates.
const (
	Affiliate          = "Kobo"
	ApplicationVersion = "4.38.23171"
	DefaultPlatformId  = "00000000-0000-0000-0000-000000000373"
	DisplayProfile     = "Android"
	DeviceModel        = "Kobo Aura ONE"
	DeviceOs           = "3.0.35+"
	DeviceOsVersion    = "NA"

	// UserAgent matches the Kobo e-reader browser.
	UserAgent = "Mozilla/5.0 (Linux; U; Android 2.0; en-us;) AppleWebKit/538.1 (KHTML, like Gecko) Version/4.0 Mobile Safari/538.1 (Kobo Touch 0373/4.38.23171)"
)

// TokenTypeBearer is the only token type the store client accepts.
const TokenTypeBearer = "Bearer"
