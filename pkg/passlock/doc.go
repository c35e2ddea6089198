/*
Package passlock provides functions for encrypting data using a key derived from a user-provided password, or from a persisted master key.
Payloads are sealed as Fernet tokens (see the fernet package), so every Container is authenticated as well as encrypted.

# How it works:

A fresh 16 byte salt is generated for every call to Encrypt, and a key is derived from the password and salt with the kdf package.
The key seals the payload, and the salt is prepended to the sealed token to form the Container.
Decrypt splits the salt back off, derives the same key from the same password, and opens the token.

	[16 byte salt][fernet token]

The master key variant replaces the password with a random key that is generated once and kept in a KeyStore.
Its Container is the fernet token alone.

# Errors:

Every failure is terminal for the call, and is one of three types.
  - PreconditionError: the input was rejected before any cryptographic work, such as a password shorter than 6 bytes or a payload over the size limit.
  - MalformedContainerError: the Container is too short to hold a salt and a token.
  - AuthenticationError: the token did not verify. A wrong password, a corrupted file, and deliberate tampering are indistinguishable.

# General guidelines:
  - Containers can only be decrypted by a Locker using the same kdf.Deriver configuration that encrypted them. The default interoperates with the reference PBKDF2 scheme.
  - Payloads are held in memory in full. The default size limit is 16MiB, see WithMaxPayloadSize.
  - LoadOrCreateMasterKey relies on KeyStore.Create being atomic, so that concurrent first calls all agree on one key.
*/
package passlock
