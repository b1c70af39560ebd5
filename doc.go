// Copyright 2026 sensortag-sheets authors. All rights reserved.
// Use of this source code is governed by an MIT-style license
// that can be found in the LICENSE file.

/*
Package sensortag-sheets logs the readings from a TI CC2650 SensorTag to a Google Sheets worksheet.

sensortag-sheets can be used from the command line but is really intended to be run as a service on a small
Linux board (e.g. a Raspberry Pi) within Bluetooth LE range of the SensorTag. Each reading comprises the IR
sensor object and ambient temperatures, the humidity sensor temperature and relative humidity, the barometer
temperature and pressure and the ambient light level.

sensortag-sheets supports the following commands:

  - scan, to list the SensorTags in range
  - read, to take a single reading from a SensorTag
  - authorise, to authorise application access to the Google Sheets worksheet
  - run, to read the SensorTag at regular intervals and append the readings to the worksheet
  - get, to download the worksheet readings as a TSV file
  - put, to append the readings in a TSV file (e.g. the spool of failed uploads) to the worksheet
*/
package sheets
