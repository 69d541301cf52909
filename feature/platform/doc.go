// Package platform wraps the bus services the isolation manager consults.
//
//   - the hardware isolation setting (Object.Enable on allow_hw_isolation),
//     read failures count as enabled,
//   - the chassis power state, used to gate manual isolation and de-isolation,
//   - the logging service, translating between error log object paths and the
//     numeric ids stored in guard records,
//   - the Enabled property of inventory objects, mirrored from each entry's
//     resolved state. Objects hosted by the inventory manager are updated
//     through its Notify method; missing objects or properties are ignored.
package platform
