/* Package forth is an embeddable threaded-code interpreter and compiler
for a FORTH-like language.

Each VM owns a single flat array of cells holding everything: a register
file at well-known offsets, a scratch buffer for the word most recently
read, a linked-list dictionary of word headers grown upward, and a data
and return stack grown upward through the top of the core. Source text
reaches the interpreter from a host file or an in-memory string, one
whitespace-delimited word at a time; words either execute immediately or
compile into the definition currently open, depending on the STATE
register and the word's own header.

A VM's entire state can round-trip through a tagged binary image
(SaveCore/LoadCore), so a session built up in one process can resume in
another, provided cell width, endianness, and format version match.

Instances are independent: nothing is shared between two VMs, and a fatal
error poisons only the instance it happened in.
*/
package forth
