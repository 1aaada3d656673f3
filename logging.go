package squashfs

import "github.com/sirupsen/logrus"

// Log is the package-level logger used throughout the decode pipeline.
// Embedders can swap it out (e.g. via WithLogger) to route these records
// into their own logging setup instead of logrus's default stderr text
// formatter.
var Log logrus.FieldLogger = logrus.StandardLogger()

// SetLogger replaces the package-level logger.
func SetLogger(l logrus.FieldLogger) {
	Log = l
}
