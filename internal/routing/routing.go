// Package routing turns an order's delivery coordinates into something the
// dashboard can show: validated points, a decoded route polyline, and
// distance/ETA text from the directions service.
package routing

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrInvalidCoordinates rejects a location before any network call. The
// dispatch service uses "0" as its missing-coordinate placeholder, so a
// zero on either axis is invalid here.
var ErrInvalidCoordinates = errors.New("routing: invalid coordinates")

// Point is a WGS84 coordinate pair.
type Point struct {
	Latitude  float64
	Longitude float64
}

// ParseCoordinates validates an order's numeric-as-string coordinate pair.
func ParseCoordinates(latStr, lngStr string) (Point, error) {
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return Point{}, fmt.Errorf("%w: latitude %q", ErrInvalidCoordinates, latStr)
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return Point{}, fmt.Errorf("%w: longitude %q", ErrInvalidCoordinates, lngStr)
	}
	if lat == 0 || lng == 0 {
		return Point{}, fmt.Errorf("%w: zero placeholder %v,%v", ErrInvalidCoordinates, lat, lng)
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return Point{}, fmt.Errorf("%w: out of range %v,%v", ErrInvalidCoordinates, lat, lng)
	}
	return Point{Latitude: lat, Longitude: lng}, nil
}

// DecodePolyline expands a Google encoded polyline (1e-5 precision) into
// coordinates.
func DecodePolyline(encoded string) []Point {
	var points []Point
	var lat, lng int64
	i := 0
	for i < len(encoded) {
		dLat, n := decodeValue(encoded[i:])
		if n == 0 {
			break
		}
		i += n
		lat += dLat

		dLng, n := decodeValue(encoded[i:])
		if n == 0 {
			break
		}
		i += n
		lng += dLng

		points = append(points, Point{
			Latitude:  float64(lat) / 1e5,
			Longitude: float64(lng) / 1e5,
		})
	}
	return points
}

// decodeValue reads one zigzag varint from s, returning the delta and the
// number of bytes consumed (0 when s is truncated).
func decodeValue(s string) (int64, int) {
	var result int64
	var shift uint
	for i := 0; i < len(s); i++ {
		b := int64(s[i]) - 63
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			if result&1 != 0 {
				return ^(result >> 1), i + 1
			}
			return result >> 1, i + 1
		}
	}
	return 0, 0
}

const earthRadiusMeters = 6371000

// DistanceMeters is the haversine great-circle distance between two points.
func DistanceMeters(a, b Point) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLng := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
