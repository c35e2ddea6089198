package main

import (
	. "github.com/saylorsolutions/modmake"
)

const (
	pwcryptVersion = "0.1.0"
)

func main() {
	b := NewBuild()
	b.Generate().DependsOnRunner("tidy", "", Go().ModTidy())

	pwcrypt := NewAppBuild("pwcrypt", "cmd/pwcrypt", pwcryptVersion)
	pwcrypt.Build(func(gb *GoBuild) {
		gb.
			StripDebugSymbols().
			SetVariable("main", "version", pwcryptVersion).
			CgoEnabled(false)
	})
	pwcrypt.Variant("windows", "amd64")
	pwcrypt.Variant("linux", "amd64")
	pwcrypt.Variant("linux", "arm64")
	pwcrypt.Variant("darwin", "amd64")
	pwcrypt.Variant("darwin", "arm64")
	b.ImportApp(pwcrypt)

	b.Execute()
}
