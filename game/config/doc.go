// Package config loads runtime settings for the Polytrack Race sync
// server from the process environment.
//
// Settings come from environment variables (optionally populated from a
// .env file by the caller via godotenv) with sensible defaults for
// everything except the admin code: ADMIN_CODE has no default, and when
// it is unset the privileged broadcast gate denies every attempt rather
// than matching an empty string.
//
// Recognized variables:
//
//	ADMIN_CODE    shared secret for the broadcast gate (no default)
//	HOST          bind host (default "localhost")
//	PORT          bind port (default 3000)
//	SPAWN_EXTENT  half-width of the spawn region (default 2.0)
//	STATIC_DIR    directory of client files served at / (default "public")
package config
