package config

// Reset exposes reset to tests.
var Reset = reset
