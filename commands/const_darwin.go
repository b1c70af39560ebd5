package commands

const (
	_etc = "/usr/local/etc/com.github.sensortag-sheets"
	_var = "/usr/local/var/com.github.sensortag-sheets"

	DEFAULT_WORKDIR     = _var
	DEFAULT_CREDENTIALS = _etc + "/.google/credentials.json"
)
