// Package crewjam registers the crewjam/saml-backed SAML engine as a
// transformer implementation. Importing it for its side effects makes the
// default engine available to the configurer:
//
//	import _ "github.com/spauthd/samlchain/crewjam"
package crewjam

import (
	_ "github.com/spauthd/samlchain/internal/adapters/driven/transformer/crewjam"
)
