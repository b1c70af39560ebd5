package commands

const (
	_etc = "/usr/local/etc/sensortag-sheets"
	_var = "/usr/local/var/sensortag-sheets"

	DEFAULT_WORKDIR     = _var
	DEFAULT_CREDENTIALS = _etc + "/.google/credentials.json"
)
