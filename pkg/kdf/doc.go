/*
Package kdf derives fixed-length symmetric keys from low-entropy passwords.

# How it works:

A password and a 16 byte random Salt are stretched into a 32 byte Key with a deliberately slow function.
The Salt is public and stored next to the ciphertext, so identical passwords produce different keys for different payloads.
The same password and Salt will always produce the same Key, which is what makes decryption possible later.

# General guidelines:
  - The Default Deriver uses PBKDF2-SHA256 with 100,000 iterations. Keys derived with it interoperate with other implementations of the same scheme, so don't change it for data that must remain readable elsewhere.
  - Scrypt and Argon2id are available with UseScrypt and UseArgon2id, and are more resistant to hardware-accelerated guessing. Data locked with one Deriver configuration can only be unlocked with the same configuration.
  - Key.Encode produces the url-safe base64 form expected by the fernet package.
*/
package kdf
