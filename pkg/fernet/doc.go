/*
Package fernet implements the Fernet authenticated token format.

A token is laid out as a version byte (0x80), a big-endian 64 bit Unix timestamp, a 16 byte random IV, the AES-128-CBC encrypted and PKCS#7 padded payload, and an HMAC-SHA256 over all of the preceding bytes.
The whole token is url-safe base64 encoded.
Tokens produced here can be opened by any other Fernet implementation holding the same key, and vice versa.

Any change to a token, or an attempt to open it with the wrong key, is reported as ErrInvalidToken before any plaintext is released.
*/
package fernet
