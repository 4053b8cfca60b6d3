// Package textutil provides filename and tag sanitizing helpers shared by the
// checkpoint naming and tracking code.
package textutil
