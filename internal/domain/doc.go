// Package domain models the data served by the weather report bot.
//
// # Data source
//
// Current conditions come from the weatherstack API
// (https://weatherstack.com/documentation). The provider identifies a
// condition with an integer weather code; the full code table ships as
// an XML file (weatherstack-weather-condition-codes.zip) mapping each
// code to a description and a day/night icon id.
//
// # Provider conventions
//
// The `is_day` field is the string "yes" or "no", converted to a bool
// at the parse boundary. `localtime_epoch` is epoch seconds at the
// queried place; `server_time` on a persisted register is epoch seconds
// on this host when the report was served. Numeric condition fields are
// integers in the configured unit system (metric by default).
//
// Error responses carry `{success:false, error:{code,type,info}}`;
// code 615 means the place could not be resolved and is the only
// provider failure a user can fix by retyping their query.
//
// # Register log
//
// Every successfully rendered report may be appended to the registers
// table with the requesting user's identity and an is_real_location
// flag: true when the place came from a typed /place query, false when
// it came from device geolocation. The distinction is taken at face
// value and never inferred from the query text.
package domain
