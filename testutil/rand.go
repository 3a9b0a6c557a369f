package testutil

import (
	"math/rand"

	. "github.com/onsi/ginkgo"
)

// RandSource is seeded by ginkgo, so failed run can be reproduced with -seed flag.
var RandSource = rand.NewSource(GinkgoRandomSeed())
var Rand = rand.New(RandSource)
