/*
Copyright © 2019 the InMAP authors.
This file is part of SRM.

SRM is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

SRM is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with SRM.  If not, see <http://www.gnu.org/licenses/>.
*/

/*
Package srm estimates near-road annual average air pollutant concentrations
with the Dutch standard calculation method 1 (SRM1) as parametrized in the
Flemish CAR-VL3.0 screening tool.

The concentration at a receptor is the sum of a traffic contribution from the
nearest road and a regional background concentration. The traffic
contribution combines the road's emission rate, a road-class-specific
dilution curve, a tree factor and a regional wind speed correction. For NO2,
the traffic contribution is additionally corrected for the conversion of NO
to NO2 by background ozone.

Typical use:

	roads, err := srm.ReadRoadShapefile("roads.shp", nil)
	tables, err := srm.ReadTables("CAR VL3.0.xlsx")
	e := srm.NewEngine(roads, tables, srm.DefaultConfig())
	no2, err := e.Concentration(srm.NO2, 126362, 181317)
*/
package srm

// Version gives the version number.
const Version = "1.0.0"
