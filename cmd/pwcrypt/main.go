package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/saylorsolutions/pwcrypt/cmd/internal"
	"github.com/saylorsolutions/pwcrypt/pkg/passlock"
	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"
)

var version = "dev"

func main() {
	var (
		helpFlag    bool
		versionFlag bool
		verboseFlag bool
		forceFlag   bool
		keyFileFlag string
		maxSizeFlag int64
	)
	flags := flag.NewFlagSet("pwcrypt", flag.ContinueOnError)
	flags.BoolVarP(&helpFlag, "help", "h", false, "Prints this usage information.")
	flags.BoolVar(&versionFlag, "version", false, "Prints the version of pwcrypt.")
	flags.BoolVarP(&verboseFlag, "verbose", "v", false, "Enables debug logging to stderr.")
	flags.BoolVarP(&forceFlag, "force", "f", false, "Overwrite the output file if it already exists.")
	flags.StringVarP(&keyFileFlag, "key-file", "k", "", "Use the master key stored in this file instead of a password. The key is generated on first use.")
	flags.Int64Var(&maxSizeFlag, "max-size", passlock.DefaultMaxPayloadSize, "Largest payload in bytes that will be accepted. 0 removes the limit.")
	flags.Usage = func() {
		fmt.Printf(`
pwcrypt protects a file with a password, and later recovers it with the same password.

USAGE:  pwcrypt COMMAND [FLAGS] [IN] [OUT]

COMMANDS:
    encrypt IN [OUT]    Encrypts IN. OUT defaults to encrypted_IN.enc next to IN.
    decrypt IN [OUT]    Decrypts IN. OUT defaults to IN with the encrypted_ prefix and .enc suffix removed.
    keygen              Creates the master key named by --key-file if it doesn't exist yet.

Use - for IN or OUT to read from stdin or write to stdout.
The password is read from the %s environment variable if it's set, otherwise it's prompted for.
Passwords must be at least %d characters long.

FLAGS:
%s`, internal.PasswordEnv, passlock.DefaultMinPasswordLength, flags.FlagUsages())
	}
	if len(os.Args) == 1 {
		flags.Usage()
		return
	}
	if err := flags.Parse(os.Args[1:]); err != nil {
		flags.Usage()
		internal.Fatal("Error parsing flags: %v", err)
	}
	if helpFlag {
		flags.Usage()
		return
	}
	if versionFlag {
		internal.Echo("pwcrypt %s", version)
		return
	}

	log := logrus.New()
	log.SetOutput(os.Stderr)
	if verboseFlag {
		log.SetLevel(logrus.DebugLevel)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	opts := []passlock.LockerOpt{passlock.WithMaxPayloadSize(maxSizeFlag)}
	switch cmd := flags.Arg(0); cmd {
	case "keygen":
		if len(keyFileFlag) == 0 {
			internal.Fatal("keygen requires --key-file")
		}
		store := passlock.NewFileKeyStore(keyFileFlag)
		_, created, err := passlock.EnsureMasterKey(store)
		if err != nil {
			internal.Fatal("Failed to load or create master key: %v", err)
		}
		log.WithFields(logrus.Fields{
			"path":    store.Path(),
			"created": created,
		}).Info("Master key ready")
	case "encrypt", "decrypt":
		if flags.NArg() < 2 {
			internal.Fatal("Missing required IN argument")
		}
		job := &fileJob{
			input: flags.Arg(1),
			force: forceFlag,
			log:   log,
		}
		switch {
		case flags.NArg() > 2:
			job.output = flags.Arg(2)
		case job.input == stdio:
			job.output = stdio
		case cmd == "encrypt":
			job.output = encryptedName(job.input)
		default:
			job.output = decryptedName(job.input)
		}

		var c codec
		if len(keyFileFlag) > 0 {
			m, err := passlock.NewMasterLocker(passlock.NewFileKeyStore(keyFileFlag), opts...)
			if err != nil {
				internal.Fatal("Failed to load master key: %v", err)
			}
			c = m
		} else {
			locker, err := passlock.NewLocker(opts...)
			if err != nil {
				internal.Fatal("Invalid configuration: %v", err)
			}
			password, err := internal.ReadPassword(cmd == "encrypt")
			if err != nil {
				internal.Fatal("%v", err)
			}
			c = &passwordCodec{locker: locker, password: password}
		}

		var err error
		if cmd == "encrypt" {
			err = job.encrypt(ctx, c)
		} else {
			err = job.decrypt(ctx, c)
		}
		if err != nil {
			log.WithError(err).Debug("Operation failed")
			internal.Fatal("%s", describe(cmd, err))
		}
		if cmd == "encrypt" && len(keyFileFlag) == 0 {
			internal.Echo("File encrypted successfully! Keep your password safe - you'll need it to decrypt.")
		}
	default:
		flags.Usage()
		internal.Fatal("Unknown command '%s'", cmd)
	}
}
